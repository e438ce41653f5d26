package response

type SaveGPS struct {
	Status     string         `json:"status"`
	Inserted   int            `json:"inserted"`
	Duplicates int            `json:"duplicates"`
	Skipped    int            `json:"skipped"`
	Malformed  int            `json:"malformed"`
	Reasons    map[string]int `json:"reasons,omitempty"`
}
