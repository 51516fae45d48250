package catalog

import "encoding/json"

// Wire-level response shapes for the Yandex Music API. Every response wraps
// its payload in a "result" envelope.

type artistResponse struct {
	Result struct {
		Artist artistDTO `json:"artist"`
	} `json:"result"`
}

type briefInfoResponse struct {
	Result struct {
		Artist         artistDTO   `json:"artist"`
		Albums         []albumDTO  `json:"albums"`
		SimilarArtists []artistDTO `json:"similarArtists"`
	} `json:"result"`
}

type tracksResponse struct {
	Result struct {
		Pagination struct {
			Page    int `json:"page"`
			PerPage int `json:"perPage"`
			Total   int `json:"total"`
		} `json:"pagination"`
		Tracks []trackDTO `json:"tracks"`
	} `json:"result"`
}

type downloadInfoResponse struct {
	Result []downloadInfoDTO `json:"result"`
}

type artistDTO struct {
	ID        json.Number `json:"id"`
	Name      string      `json:"name"`
	Countries []string    `json:"countries"`
	Genres    []string    `json:"genres"`
	Counts    struct {
		Tracks int `json:"tracks"`
	} `json:"counts"`
}

type albumDTO struct {
	ID    json.Number `json:"id"`
	Title string      `json:"title"`
	Year  int         `json:"year"`
}

type trackDTO struct {
	ID             json.Number `json:"id"`
	Title          string      `json:"title"`
	DurationMs     int         `json:"durationMs"`
	ContentWarning string      `json:"contentWarning"`
	CoverURI       string      `json:"coverUri"`
	Artists        []artistDTO `json:"artists"`
	Albums         []albumDTO  `json:"albums"`
	Available      bool        `json:"available"`
}

type downloadInfoDTO struct {
	Codec           string `json:"codec"`
	BitrateInKbps   int    `json:"bitrateInKbps"`
	DownloadInfoURL string `json:"downloadInfoUrl"`
	Direct          bool   `json:"direct"`
}

// fileInfoResponse is the second hop of URL resolution, served by the
// storage host named in downloadInfoUrl.
type fileInfoResponse struct {
	S    string `json:"s"`
	TS   string `json:"ts"`
	Path string `json:"path"`
	Host string `json:"host"`
}
