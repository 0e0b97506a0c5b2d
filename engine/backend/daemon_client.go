package backend

import (
	"errors"
	"fmt"
	"net/url"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/spaghettifunk/astra/engine/loader"
)

// DaemonClient implements loader.BackendIO over a daemon websocket
// connection. One request is in flight per connection; fetch workers
// serialize on the mutex, which is acceptable because reads only ever happen
// on worker goroutines, never on the pump.
type DaemonClient struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func DialDaemon(addr string) (*DaemonClient, error) {
	u := url.URL{Scheme: "ws", Host: addr, Path: "/assets"}
	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("dialing asset daemon at %s: %w", addr, err)
	}
	return &DaemonClient{conn: conn}, nil
}

func (c *DaemonClient) ReadAsset(locator string) (loader.AssetTypeID, []byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.conn.WriteJSON(assetRequest{Path: locator}); err != nil {
		return loader.AssetTypeID{}, nil, err
	}

	var resp assetResponse
	if err := c.conn.ReadJSON(&resp); err != nil {
		return loader.AssetTypeID{}, nil, err
	}
	switch resp.Status {
	case statusOK:
	case statusNotIndexed:
		return loader.AssetTypeID{}, nil, &NotIndexedError{Path: locator}
	case statusNotFound:
		return loader.AssetTypeID{}, nil, fmt.Errorf("%q: %w", locator, ErrNotFound)
	default:
		return loader.AssetTypeID{}, nil, fmt.Errorf("daemon failed to read %q: %s", locator, resp.Error)
	}

	typeID, err := uuid.Parse(resp.Type)
	if err != nil {
		return loader.AssetTypeID{}, nil, fmt.Errorf("daemon sent bad type id for %q: %w", locator, err)
	}

	messageType, data, err := c.conn.ReadMessage()
	if err != nil {
		return loader.AssetTypeID{}, nil, err
	}
	if messageType != websocket.BinaryMessage {
		return loader.AssetTypeID{}, nil, errors.New("daemon payload was not a binary message")
	}
	if int64(len(data)) != resp.Size {
		return loader.AssetTypeID{}, nil, fmt.Errorf("daemon payload for %q: expected %d bytes, got %d",
			locator, resp.Size, len(data))
	}
	return typeID, data, nil
}

func (c *DaemonClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.Close()
}
