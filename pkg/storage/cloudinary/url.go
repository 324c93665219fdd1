package cloudinary

import "strings"

const optimizeSegment = "f_auto,q_auto"

// OptimizedURL inserts the automatic format and quality transformation into a
// delivery URL. URLs that already carry the segment, or that do not look like
// delivery URLs, are returned unchanged.
func OptimizedURL(deliveryURL string) string {
	if deliveryURL == "" {
		return deliveryURL
	}
	if strings.Contains(deliveryURL, "/"+optimizeSegment+"/") {
		return deliveryURL
	}
	marker := "/upload/"
	idx := strings.Index(deliveryURL, marker)
	if idx < 0 {
		return deliveryURL
	}
	return deliveryURL[:idx+len(marker)] + optimizeSegment + "/" + deliveryURL[idx+len(marker):]
}
