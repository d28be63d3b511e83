package handler

import "encoding/json"

// Response is the Lambda proxy response shape shared by the request-driven
// handlers.
type Response struct {
	StatusCode int               `json:"statusCode"`
	Headers    map[string]string `json:"headers"`
	Body       string            `json:"body"`
}

func jsonResponse(statusCode int, payload any) Response {
	body, err := json.Marshal(payload)
	if err != nil {
		return Response{
			StatusCode: 500,
			Headers:    map[string]string{"content-type": "application/json"},
			Body:       `{"error":"internal error"}`,
		}
	}
	return Response{
		StatusCode: statusCode,
		Headers:    map[string]string{"content-type": "application/json"},
		Body:       string(body),
	}
}
