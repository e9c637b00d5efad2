package repo

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"kifu/internal/domain"
)

const (
	maxEngineLine = 16 << 20
	haltPrefix    = "halt_"
)

// KatagoClient speaks the KataGo analysis protocol: one JSON request per line on
// the engine's stdin, one JSON response per line on its stdout. Responses are not
// awaited; each one is handed to the callback as it arrives.
type KatagoClient struct {
	cmd        *exec.Cmd
	stdin      *bufio.Writer
	stdout     *bufio.Scanner
	closer     io.Closer
	mu         sync.Mutex
	pending    sync.Map // search id -> struct{}
	inFlight   atomic.Int64
	onResponse func(domain.AnalysisResponse)
	log        *zap.SugaredLogger
	done       chan struct{}
}

// NewKatagoClient talks to an engine over w and r and starts reading r. If w is an
// io.Closer, Close closes it.
func NewKatagoClient(w io.Writer, r io.Reader, log *zap.SugaredLogger, onResponse func(domain.AnalysisResponse)) *KatagoClient {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxEngineLine)

	client := &KatagoClient{
		stdin:      bufio.NewWriter(w),
		stdout:     scanner,
		onResponse: onResponse,
		log:        log,
		done:       make(chan struct{}),
	}
	if c, ok := w.(io.Closer); ok {
		client.closer = c
	}

	go client.listenForResponses()

	return client
}

// StartKatago runs the engine binary in analysis mode.
func StartKatago(path string, args []string, log *zap.SugaredLogger, onResponse func(domain.AnalysisResponse)) (*KatagoClient, error) {
	cmd := exec.Command(path, args...)

	stdinPipe, err := cmd.StdinPipe()
	if err != nil {
		return nil, err
	}
	stdoutPipe, err := cmd.StdoutPipe()
	if err != nil {
		return nil, err
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start engine %s: %w", path, err)
	}
	log.Infof("engine started: %s (pid %d)", path, cmd.Process.Pid)

	client := NewKatagoClient(stdinPipe, stdoutPipe, log, onResponse)
	client.cmd = cmd
	return client, nil
}

func (c *KatagoClient) listenForResponses() {
	defer close(c.done)

	for c.stdout.Scan() {
		line := c.stdout.Bytes()

		var resp domain.AnalysisResponse
		if err := json.Unmarshal(line, &resp); err != nil {
			c.log.Errorw("failed to unmarshal engine response", "error", err, "line", string(line))
			continue
		}

		if strings.HasPrefix(resp.ID, haltPrefix) {
			continue
		}
		if _, ok := c.pending.Load(resp.ID); !ok {
			c.log.Debugw("no pending request for response ID", "id", resp.ID, "error", resp.Error)
			continue
		}
		if !resp.IsDuringSearch || resp.Error != "" {
			c.forget(resp.ID)
		}
		if c.onResponse != nil {
			c.onResponse(resp)
		}
	}
	if err := c.stdout.Err(); err != nil {
		c.log.Errorw("engine output closed", "error", err)
	}
}

// Analyze sends one request. The response arrives through the callback.
func (c *KatagoClient) Analyze(request domain.AnalysisRequest) error {
	if request.ID == "" {
		return errors.New("analysis request without id")
	}

	requestJSON, err := json.Marshal(request)
	if err != nil {
		return err
	}

	c.pending.Store(request.ID, struct{}{})
	c.inFlight.Add(1)

	if err := c.writeLine(requestJSON); err != nil {
		c.forget(request.ID)
		return err
	}
	return nil
}

// Halt asks the engine to stop every search and forgets the pending requests.
func (c *KatagoClient) Halt() error {
	c.pending.Range(func(key, _ any) bool {
		c.forget(key.(string))
		return true
	})
	return c.sendHalt(domain.HaltRequest{Action: "terminate_all"})
}

// Terminate stops the named searches only. Their last responses are dropped.
func (c *KatagoClient) Terminate(searchIDs ...string) error {
	for _, id := range searchIDs {
		c.forget(id)
		if err := c.sendHalt(domain.HaltRequest{Action: "terminate", TerminateID: id}); err != nil {
			return err
		}
	}
	return nil
}

func (c *KatagoClient) forget(id string) {
	if _, loaded := c.pending.LoadAndDelete(id); loaded {
		c.inFlight.Add(-1)
	}
}

func (c *KatagoClient) sendHalt(req domain.HaltRequest) error {
	req.ID = haltPrefix + uuid.NewString()
	requestJSON, err := json.Marshal(req)
	if err != nil {
		return err
	}
	return c.writeLine(requestJSON)
}

// Pending is the number of requests that have not had a final response.
func (c *KatagoClient) Pending() int {
	return int(c.inFlight.Load())
}

func (c *KatagoClient) writeLine(b []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, err := c.stdin.Write(append(b, '\n')); err != nil {
		return fmt.Errorf("write to engine: %w", err)
	}
	if err := c.stdin.Flush(); err != nil {
		return fmt.Errorf("write to engine: %w", err)
	}
	return nil
}

// Done is closed once the engine's output ends.
func (c *KatagoClient) Done() <-chan struct{} {
	return c.done
}

// Close closes the engine's input and, for a process started by StartKatago, waits
// for it to exit.
func (c *KatagoClient) Close() error {
	var err error
	if c.closer != nil {
		err = c.closer.Close()
	}
	if c.cmd != nil {
		if werr := c.cmd.Wait(); werr != nil && err == nil {
			err = werr
		}
	}
	return err
}
