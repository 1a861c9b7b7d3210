package client

import (
	"fmt"
	"net/url"

	"roomly/pkg/model"
)

type RoomClient struct {
	httpClient *HttpClient
}

func NewRoomClient(baseUrl string) *RoomClient {
	return &RoomClient{
		httpClient: NewHttpClient(baseUrl),
	}
}

func (c *RoomClient) SetToken(token string) {
	c.httpClient.SetToken(token)
}

func (c *RoomClient) Create(body any) (*Response, error) {
	return c.httpClient.POST("/api/v1/rooms", body)
}

func (c *RoomClient) GetAll(limit int, offset int64) (*Response, error) {
	return c.httpClient.GET(fmt.Sprintf("/api/v1/rooms?limit=%d&offset=%d", limit, offset))
}

func (c *RoomClient) GetByID(id string) (*Response, error) {
	return c.httpClient.GET("/api/v1/rooms/id/" + url.PathEscape(id))
}

func (c *RoomClient) Update(id string, body any) (*Response, error) {
	return c.httpClient.PATCH("/api/v1/rooms/id/"+url.PathEscape(id), body)
}

func (c *RoomClient) Delete(id string) (*Response, error) {
	return c.httpClient.DELETE("/api/v1/rooms/id/" + url.PathEscape(id))
}

func (c *RoomClient) DecodeRoom(resp *Response) (*model.Room, error) {
	var room model.Room
	if err := resp.DecodeData(&room); err != nil {
		return nil, err
	}
	return &room, nil
}
