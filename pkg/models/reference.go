package models

import "strings"

// Reference is a citation to a source document backing an AI response,
// keyed by chunk id for deduplication.
type Reference struct {
	ChunkID      string `json:"chunk_id"`
	DocumentURL  string `json:"document_url"`
	DocumentText string `json:"document_text"`
}

const bucketPathPrefix = "/b/"

// ResolveStorageURL rewrites internal bucket paths ("/b/<bucket>/o/<object>")
// into public object-storage URLs. Other URLs pass through unchanged.
func ResolveStorageURL(url string) string {
	if !strings.HasPrefix(url, bucketPathPrefix) {
		return url
	}
	rewritten := "https://storage.googleapis.com/" + strings.TrimPrefix(url, bucketPathPrefix)
	return strings.Replace(rewritten, "/o/", "/", 1)
}
