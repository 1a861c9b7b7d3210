package client

import (
	"fmt"
	"net/url"

	"roomly/pkg/model"
)

type BookingClient struct {
	httpClient *HttpClient
}

func NewBookingClient(baseUrl string) *BookingClient {
	return &BookingClient{
		httpClient: NewHttpClient(baseUrl),
	}
}

func (c *BookingClient) SetToken(token string) {
	c.httpClient.SetToken(token)
}

func (c *BookingClient) WaitForHealthy() error {
	return c.httpClient.WaitForHealthy(defaultHealthWait)
}

func (c *BookingClient) Create(body any, opts ...RequestOption) (*Response, error) {
	return c.httpClient.POST("/api/v1/bookings", body, opts...)
}

func (c *BookingClient) CreateRaw(rawBody []byte) (*Response, error) {
	return c.httpClient.POST("/api/v1/bookings", nil, WithRawBody(rawBody))
}

func (c *BookingClient) GetAll() (*Response, error) {
	return c.httpClient.GET("/api/v1/bookings")
}

func (c *BookingClient) Search(filter model.BookingFilter) (*Response, error) {
	q := url.Values{}
	if filter.RoomID != "" {
		q.Set("room_id", filter.RoomID)
	}
	if filter.BookingDate != "" {
		q.Set("booking_date", filter.BookingDate)
	}
	if filter.UserID != "" {
		q.Set("user_id", filter.UserID)
	}
	return c.httpClient.GET("/api/v1/bookings/search?" + q.Encode())
}

func (c *BookingClient) GetByID(id string) (*Response, error) {
	return c.httpClient.GET("/api/v1/bookings/id/" + url.PathEscape(id))
}

func (c *BookingClient) Update(id string, body any) (*Response, error) {
	return c.httpClient.PATCH("/api/v1/bookings/id/"+url.PathEscape(id), body)
}

func (c *BookingClient) Delete(id string) (*Response, error) {
	return c.httpClient.DELETE("/api/v1/bookings/id/" + url.PathEscape(id))
}

func (c *BookingClient) DecodeBooking(resp *Response) (*model.Booking, error) {
	var booking model.Booking
	if err := resp.DecodeData(&booking); err != nil {
		return nil, err
	}
	return &booking, nil
}

func (c *BookingClient) DecodeDetails(resp *Response) (*model.BookingDetails, error) {
	var details model.BookingDetails
	if err := resp.DecodeData(&details); err != nil {
		return nil, err
	}
	return &details, nil
}

func (c *BookingClient) DecodeBookings(resp *Response) ([]*model.Booking, error) {
	var bookings []*model.Booking
	if err := resp.DecodeData(&bookings); err != nil {
		return nil, err
	}
	return bookings, nil
}

// DecodeConflict reads the body of a 409 reservation response.
func (c *BookingClient) DecodeConflict(resp *Response) (*model.Conflict, error) {
	var body struct {
		Outcome  model.Outcome   `json:"outcome"`
		Conflict *model.Conflict `json:"conflict"`
	}
	if err := resp.DecodeJSON(&body); err != nil {
		return nil, fmt.Errorf("could not decode conflict (%s): %w", resp, err)
	}
	if body.Outcome != model.OutcomeConflict || body.Conflict == nil {
		return nil, fmt.Errorf("response is not a conflict: %s", resp)
	}
	return body.Conflict, nil
}
