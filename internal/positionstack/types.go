package positionstack

type ForwardResponse struct {
	Data []*Result `json:"data"`
}

type ReverseResponse struct {
	Data []*Result `json:"data"`
}

type Result struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Label     string  `json:"label"`
	Name      string  `json:"name"`
	Locality  string  `json:"locality"`
	Region    string  `json:"region"`
	Country   string  `json:"country"`
}
