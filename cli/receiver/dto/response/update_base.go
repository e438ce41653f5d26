package response

type UpdateBase struct {
	Success       bool    `json:"success"`
	Message       string  `json:"message"`
	BaseMAC       string  `json:"base_mac"`
	BaseLatitude  float64 `json:"base_latitude"`
	BaseLongitude float64 `json:"base_longitude"`
}
