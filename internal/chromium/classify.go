package chromium

// classifyScript runs in the page and returns every stylesheet rule in
// cascade order, flagged critical when any element it selects starts above
// the fold. @media blocks are split into their critical and remaining
// halves; @font-face is always kept.
const classifyScript = `(() => {
  const fold = window.innerHeight;
  const pseudo = /::?(?:before|after|first-line|first-letter|selection|placeholder|marker|backdrop|hover|focus|focus-within|focus-visible|active|visited|link|target|-webkit-[\w-]+|-moz-[\w-]+)(?:\([^)]*\))?/g;
  const aboveFold = (selectorText) => selectorText.split(',').some((sel) => {
    const plain = sel.replace(pseudo, '').trim() || '*';
    let els;
    try { els = document.querySelectorAll(plain); } catch (e) { return false; }
    for (const el of els) {
      if (el.getBoundingClientRect().top < fold) return true;
    }
    return false;
  });
  const walk = (rules) => {
    const out = [];
    for (const rule of rules) {
      if (rule instanceof CSSStyleRule) {
        out.push({ css: rule.cssText, critical: aboveFold(rule.selectorText) });
      } else if (rule instanceof CSSMediaRule) {
        const inner = walk(rule.cssRules);
        const head = '@media ' + rule.media.mediaText + '{';
        const crit = inner.filter((r) => r.critical).map((r) => r.css).join('');
        const rest = inner.filter((r) => !r.critical).map((r) => r.css).join('');
        if (crit) out.push({ css: head + crit + '}', critical: true });
        if (rest) out.push({ css: head + rest + '}', critical: false });
      } else if (rule instanceof CSSFontFaceRule) {
        out.push({ css: rule.cssText, critical: true });
      } else {
        out.push({ css: rule.cssText, critical: false });
      }
    }
    return out;
  };
  const entries = [];
  for (const sheet of document.styleSheets) {
    let rules;
    try { rules = sheet.cssRules; } catch (e) { continue; }
    entries.push(...walk(rules));
  }
  return entries;
})()`

type ruleEntry struct {
	CSS      string `json:"css"`
	Critical bool   `json:"critical"`
}

/*
mergeViewports combines per-viewport classifications. A rule is critical if
it was critical at any viewport. Order follows first appearance across the
passes, so the first viewport's cascade order wins.
*/
func mergeViewports(passes [][]ruleEntry) (critical, rest, all []string) {
	isCritical := map[string]bool{}
	seen := map[string]bool{}
	for _, pass := range passes {
		for _, e := range pass {
			if e.Critical {
				isCritical[e.CSS] = true
			}
			if !seen[e.CSS] {
				seen[e.CSS] = true
				all = append(all, e.CSS)
			}
		}
	}
	for _, css := range all {
		if isCritical[css] {
			critical = append(critical, css)
		} else {
			rest = append(rest, css)
		}
	}
	return critical, rest, all
}
