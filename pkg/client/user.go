package client

import (
	"fmt"
	"net/http"
	"net/url"

	"roomly/pkg/model"
)

type UserClient struct {
	httpClient *HttpClient
}

func NewUserClient(baseUrl string) *UserClient {
	return &UserClient{
		httpClient: NewHttpClient(baseUrl),
	}
}

func (c *UserClient) SetToken(token string) {
	c.httpClient.SetToken(token)
}

// Login exchanges an id number and phone for an access token.
func (c *UserClient) Login(idNumber, phone string) (*model.LoginResponse, error) {
	resp, err := c.httpClient.POST("/api/v1/auth/login", model.LoginRequest{IDNumber: idNumber, Phone: phone})
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("login failed: %s", GetErrorMessage(resp))
	}

	var login model.LoginResponse
	if err := resp.DecodeData(&login); err != nil {
		return nil, err
	}
	return &login, nil
}

func (c *UserClient) Me() (*Response, error) {
	return c.httpClient.GET("/api/v1/users/me")
}

func (c *UserClient) Create(body any) (*Response, error) {
	return c.httpClient.POST("/api/v1/users", body)
}

func (c *UserClient) GetByID(id string) (*Response, error) {
	return c.httpClient.GET("/api/v1/users/id/" + url.PathEscape(id))
}

func (c *UserClient) Delete(id string) (*Response, error) {
	return c.httpClient.DELETE("/api/v1/users/id/" + url.PathEscape(id))
}

func (c *UserClient) DecodeUser(resp *Response) (*model.User, error) {
	var user model.User
	if err := resp.DecodeData(&user); err != nil {
		return nil, err
	}
	return &user, nil
}
