package transfer

type DispatchResponse struct {
	Success   bool `json:"success"`
	Processed int  `json:"processed"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
