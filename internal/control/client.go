package control

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/mitchellh/go-ps"

	"github.com/julianstephens/habitual/internal/constants"
)

var findProcessFunc = ps.FindProcess

// Client talks to the daemon whose lockfile lives in dir.
type Client struct {
	dir    string
	client *http.Client
}

func NewClient(dir string) *Client {
	return &Client{dir: dir, client: &http.Client{Timeout: 5 * time.Second}}
}

func (c *Client) Logged(ctx context.Context, habitID string) error {
	return c.do(ctx, http.MethodPost, "/logged", habitRequest{HabitID: habitID}, nil)
}

func (c *Client) Resync(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/resync", struct{}{}, nil)
}

func (c *Client) Action(ctx context.Context, req ActionRequest) error {
	return c.do(ctx, http.MethodPost, "/action", req, nil)
}

func (c *Client) States(ctx context.Context) (map[string]string, error) {
	var states map[string]string
	if err := c.do(ctx, http.MethodGet, "/states", nil, &states); err != nil {
		return nil, err
	}
	return states, nil
}

// endpoint reads the lockfile and checks that its pid is still a habitual
// process, or this one. A missing lockfile or a dead process means
// ErrNotRunning.
func (c *Client) endpoint() (Lockfile, error) {
	lock, err := ReadLockfile(LockfilePath(c.dir))
	if errors.Is(err, fs.ErrNotExist) {
		return Lockfile{}, ErrNotRunning
	}
	if err != nil {
		return Lockfile{}, err
	}

	if lock.PID == os.Getpid() {
		return lock, nil
	}
	process, err := findProcessFunc(lock.PID)
	if err != nil || process == nil {
		return Lockfile{}, ErrNotRunning
	}
	if !strings.HasPrefix(process.Executable(), constants.ControlExecutablePrefix) {
		return Lockfile{}, fmt.Errorf("%w: process %d is %s", ErrNotRunning, lock.PID, process.Executable())
	}
	return lock, nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	lock, err := c.endpoint()
	if err != nil {
		return err
	}

	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	}

	url := fmt.Sprintf("http://127.0.0.1:%d%s", lock.Port, path)
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(constants.TraySecretHeader, lock.Secret)

	res, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNotRunning, err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		var e errorResponse
		if err := json.NewDecoder(res.Body).Decode(&e); err == nil && e.Error != "" {
			return errors.New(e.Error)
		}
		return fmt.Errorf("daemon returned status %d", res.StatusCode)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(res.Body).Decode(out)
}
