package ml

// FeatureCount is the dimensionality of the lead feature vector:
// time-on-site, pages-visited, clicked-price.
const FeatureCount = 3

// Features is the fixed-length numeric vector extracted from a raw lead
// submission.
type Features [FeatureCount]float64

// ExtractFeatures maps raw signals into a feature vector. Extraction
// never fails: negative values degrade to zero and the boolean is
// encoded as 0/1, so a malformed integration cannot lose the lead.
func ExtractFeatures(timeOnSite, pagesVisited int, clickedPrice bool) Features {
	var f Features
	if timeOnSite > 0 {
		f[0] = float64(timeOnSite)
	}
	if pagesVisited > 0 {
		f[1] = float64(pagesVisited)
	}
	if clickedPrice {
		f[2] = 1
	}
	return f
}
