package transit

// Wire format of the EMT Madrid MobilityLabs API. Pointer fields tell a
// missing key apart from a zero value.

type loginResponse struct {
	Code        string      `json:"code"`
	Description string      `json:"description"`
	Data        []loginData `json:"data"`
}

type loginData struct {
	AccessToken *string `json:"accessToken"`
}

type arrivalsResponse struct {
	Code        string         `json:"code"`
	Description string         `json:"description"`
	Data        []arrivalsData `json:"data"`
}

type arrivalsData struct {
	Arrive *[]arriveEntry `json:"Arrive"`
}

type arriveEntry struct {
	Line           *string `json:"line"`
	Destination    *string `json:"destination"`
	EstimateArrive *uint64 `json:"estimateArrive"`
}

type arrivalsRequest struct {
	TextEstimationsRequired string `json:"Text_EstimationsRequired_YN"`
}

const (
	loginPath    = "/v1/mobilitylabs/user/login/"
	arrivalsPath = "/v1/transport/busemtmad/stops/%s/arrives/"
)
