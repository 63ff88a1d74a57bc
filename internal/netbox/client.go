package netbox

import (
	"bufio"
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/BrandonDHaskell/tailgate/server/internal/config"
)

var (
	ErrNoSession   = errors.New("netbox: no sessionid in login response")
	ErrLoginFailed = errors.New("netbox: login failed")
	ErrStreamEnded = errors.New("netbox: event stream ended")
)

const (
	loginTimeout  = 5 * time.Second
	maxStreamLine = 1 << 20
	boundary      = "--Boundary"
)

// Event is one access-control event read from the NetBox stream.
type Event struct {
	Portal   string
	Desc     string
	Received time.Time
}

// Client speaks the NetBox XML API over HTTP POST.
type Client struct {
	http *resty.Client
	cfg  config.NetBox
}

// NewClient builds a client for cfg. The underlying resty client has no
// overall timeout because the event stream is long-lived; login requests are
// bounded by their own context deadline.
func NewClient(cfg config.NetBox) *Client {
	return &Client{
		http: resty.New().
			SetHeader("Content-Type", "application/xml").
			SetHeader("Accept", "application/xml"),
		cfg: cfg,
	}
}

type apiRequest struct {
	XMLName   xml.Name   `xml:"NETBOX-API"`
	SessionID string     `xml:"sessionid,attr,omitempty"`
	Command   apiCommand `xml:"COMMAND"`
}

type apiCommand struct {
	Name   string    `xml:"name,attr"`
	Params apiParams `xml:"PARAMS"`
}

type apiParams struct {
	Username string       `xml:"USERNAME,omitempty"`
	Password string       `xml:"PASSWORD,omitempty"`
	TagNames *apiTagNames `xml:"TAGNAMES,omitempty"`
}

type apiTagNames struct {
	DescName   struct{} `xml:"DESCNAME"`
	PortalName struct{} `xml:"PORTALNAME"`
}

type apiResponse struct {
	XMLName   xml.Name
	SessionID string `xml:"sessionid,attr"`
}

type apiEvent struct {
	Desc   string `xml:"DESCNAME"`
	Portal string `xml:"PORTALNAME"`
}

func (c *Client) loginBody() ([]byte, error) {
	return xml.Marshal(apiRequest{Command: apiCommand{
		Name:   "Login",
		Params: apiParams{Username: c.cfg.Username, Password: c.cfg.Password},
	}})
}

// Login authenticates and returns the session id from the root element.
func (c *Client) Login(ctx context.Context) (string, error) {
	body, err := c.loginBody()
	if err != nil {
		return "", fmt.Errorf("encode login: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, loginTimeout)
	defer cancel()

	resp, err := c.http.R().SetContext(ctx).SetBody(body).Post(c.cfg.URL)
	if err != nil {
		return "", fmt.Errorf("netbox login: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return "", fmt.Errorf("%w: HTTP %d", ErrLoginFailed, resp.StatusCode())
	}

	var out apiResponse
	if err := xml.Unmarshal(resp.Body(), &out); err != nil {
		return "", fmt.Errorf("decode login response: %w", err)
	}
	if out.SessionID == "" {
		return "", ErrNoSession
	}
	return out.SessionID, nil
}

// Test checks that the configured credentials can log in.
func (c *Client) Test(ctx context.Context) error {
	_, err := c.Login(ctx)
	return err
}

// Stream subscribes to the event stream with session and calls fn for every
// event until the stream ends, fails or ctx is cancelled.
func (c *Client) Stream(ctx context.Context, session string, fn func(Event)) error {
	body, err := xml.Marshal(apiRequest{
		SessionID: session,
		Command: apiCommand{
			Name:   "StreamEvents",
			Params: apiParams{TagNames: &apiTagNames{}},
		},
	})
	if err != nil {
		return fmt.Errorf("encode stream request: %w", err)
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(body).
		SetDoNotParseResponse(true).
		Post(c.cfg.URL)
	if err != nil {
		return fmt.Errorf("netbox stream: %w", err)
	}
	raw := resp.RawBody()
	defer raw.Close()

	if resp.StatusCode() != http.StatusOK {
		return fmt.Errorf("netbox stream: HTTP %d", resp.StatusCode())
	}
	return scanEvents(raw, fn)
}

// scanEvents reads the multipart-ish stream line by line. Each line holding
// an <EVENT> is cut at the boundary marker and parsed on its own.
func scanEvents(r io.Reader, fn func(Event)) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxStreamLine)
	for sc.Scan() {
		line := sc.Text()
		if !strings.Contains(line, "<EVENT") {
			continue
		}
		line, _, _ = strings.Cut(line, boundary)
		ev, ok := parseEvent(line)
		if !ok {
			continue
		}
		ev.Received = time.Now().UTC()
		fn(ev)
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("read stream: %w", err)
	}
	return ErrStreamEnded
}

// parseEvent finds the first EVENT element anywhere in fragment.
func parseEvent(fragment string) (Event, bool) {
	dec := xml.NewDecoder(bytes.NewReader([]byte(fragment)))
	for {
		tok, err := dec.Token()
		if err != nil {
			return Event{}, false
		}
		start, ok := tok.(xml.StartElement)
		if !ok || start.Name.Local != "EVENT" {
			continue
		}
		var ev apiEvent
		if err := dec.DecodeElement(&ev, &start); err != nil {
			return Event{}, false
		}
		return Event{
			Portal: strings.TrimSpace(ev.Portal),
			Desc:   strings.TrimSpace(ev.Desc),
		}, true
	}
}
