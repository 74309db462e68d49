package ic

import "strings"

const htmlExt = ".html"

// Discover returns the HTML assets to process, in the asset set's own
// enumeration order. An empty result is not an error; an asset set that
// could not be enumerated at all is (see EnumerationError).
func Discover(assets AssetSet) ([]string, error) {
	names := assets.Names()
	if ee, ok := assets.(EnumerationError); ok {
		if err := ee.Err(); err != nil {
			return nil, err
		}
	}

	var htmlFiles []string
	for _, name := range names {
		if strings.HasSuffix(name, htmlExt) {
			htmlFiles = append(htmlFiles, name)
		}
	}
	return htmlFiles, nil
}
