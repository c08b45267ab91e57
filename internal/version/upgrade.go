package version

// SuggestedUpgrade implements the §4.F / §8 truth table: candidates are
// the response's latest_stable (if present and parseable) and latest_beta
// (only when showBeta is set); pick the greater of the candidates that
// parse, and suggest it if it is newer than current. Returns "" when
// nothing qualifies.
func SuggestedUpgrade(current AppVersion, resp CheckResponse, showBeta bool) string {
	var candidates []AppVersion

	if resp.LatestStable != "" {
		if v, ok := ParseAppVersion(resp.LatestStable); ok {
			candidates = append(candidates, v)
		}
	}
	if showBeta {
		if v, ok := ParseAppVersion(resp.LatestBeta); ok {
			candidates = append(candidates, v)
		}
	}
	if len(candidates) == 0 {
		return ""
	}

	latest := maxVersion(candidates)
	if current.Less(latest) {
		return latest.String()
	}
	return ""
}
