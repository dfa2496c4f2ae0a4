package e2e

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gookit/color"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/suite"
)

type BaseSuite struct {
	suite.Suite
	Config Config
	client *http.Client
}

// SetupSuite loads the environment configuration before running tests
func (s *BaseSuite) SetupSuite() {
	var err error
	s.Config, err = LoadConfig()
	s.Require().NoError(err)
	s.client = &http.Client{Timeout: 10 * time.Second}

	if s.Config.ServerAddr == "" {
		s.T().Skip("SERVER_ADDR not set, skipping e2e scenarios")
	}
}

// Step prints a colorized header so scenario logs read like a script.
func (s *BaseSuite) Step(name string) {
	header := fmt.Sprintf("  ====== %s ======", name)
	if s.Config.Colours {
		header = color.New(color.BgBlack, color.FgGreen).Render(header)
	}
	s.T().Log(header)
}

// PostJSON sends a JSON body to path and decodes the response into out.
func (s *BaseSuite) PostJSON(path, token string, body, out any) int {
	data, err := json.Marshal(body)
	s.Require().NoError(err)

	req, err := http.NewRequest(http.MethodPost, "http://"+s.Config.ServerAddr+path, bytes.NewReader(data))
	s.Require().NoError(err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := s.client.Do(req)
	s.Require().NoError(err)
	defer resp.Body.Close()

	if out != nil {
		s.Require().NoError(json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

// GetJSON fetches path with the given token and decodes the response.
func (s *BaseSuite) GetJSON(path, token string, out any) int {
	req, err := http.NewRequest(http.MethodGet, "http://"+s.Config.ServerAddr+path, nil)
	s.Require().NoError(err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := s.client.Do(req)
	s.Require().NoError(err)
	defer resp.Body.Close()

	if out != nil {
		s.Require().NoError(json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

// DialWS opens an authenticated websocket session.
func (s *BaseSuite) DialWS(token string) *websocket.Conn {
	conn, _, err := websocket.DefaultDialer.Dial(
		"ws://"+s.Config.ServerAddr+"/ws?token="+token, nil)
	s.Require().NoError(err)
	s.Require().NoError(conn.SetReadDeadline(time.Now().Add(10 * time.Second)))
	return conn
}
