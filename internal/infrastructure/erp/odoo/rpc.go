package odoo

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/kolo/xmlrpc"

	"github.com/procuregate/gateway/internal/domain/document"
)

// Caller abstracts one XML-RPC endpoint so the adapter is testable
// without a server.
type Caller interface {
	Call(serviceMethod string, args any, reply any) error
}

// rpcClient wraps the common and object endpoints of one server and
// caches the authenticated user id.
type rpcClient struct {
	config *Config
	common Caller
	object Caller

	mu  sync.Mutex
	uid int64
}

// newRPCClient dials the common and object endpoints
func newRPCClient(config *Config) (*rpcClient, error) {
	transport := &http.Transport{
		ResponseHeaderTimeout: time.Duration(config.TimeoutSeconds) * time.Second,
	}
	common, err := xmlrpc.NewClient(config.URL+"/xmlrpc/2/common", transport)
	if err != nil {
		return nil, fmt.Errorf("odoo: failed to create common endpoint client: %w", err)
	}
	object, err := xmlrpc.NewClient(config.URL+"/xmlrpc/2/object", transport)
	if err != nil {
		return nil, fmt.Errorf("odoo: failed to create object endpoint client: %w", err)
	}
	return &rpcClient{config: config, common: common, object: object}, nil
}

// authenticate returns the cached user id, logging in on first use.
// A zero uid from the server means the credentials were rejected.
func (c *rpcClient) authenticate() (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.uid != 0 {
		return c.uid, nil
	}

	var uid int64
	args := []any{c.config.DB, c.config.Login, c.config.Password, map[string]any{}}
	if err := c.common.Call("authenticate", args, &uid); err != nil {
		return 0, fmt.Errorf("%w: %v", document.ErrBackendUnavailable, err)
	}
	if uid == 0 {
		return 0, document.ErrBackendAuthFailed
	}
	c.uid = uid
	return uid, nil
}

// executeKw invokes a model method through the object endpoint. The
// optional kwargs map carries keyword arguments such as field lists.
func (c *rpcClient) executeKw(model, method string, args []any, kwargs map[string]any, reply any) error {
	uid, err := c.authenticate()
	if err != nil {
		return err
	}
	callArgs := []any{c.config.DB, uid, c.config.Password, model, method, args}
	if kwargs != nil {
		callArgs = append(callArgs, kwargs)
	}
	if err := c.object.Call("execute_kw", callArgs, reply); err != nil {
		return fmt.Errorf("%w: %s.%s: %v", document.ErrBackendRequestFailed, model, method, err)
	}
	return nil
}
