package relayer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"io/ioutil"
	"net/http"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

const (
	pathKeyURL      = "/v1/keyurl"
	pathInputProof  = "/v1/input-proof"
	pathUserDecrypt = "/v1/user-decrypt"
)

type client struct {
	baseURL string
	http    *http.Client
}

func newClient(baseURL string, timeout time.Duration) *client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http: &http.Client{
			Timeout: timeout,
		},
	}
}

func (c *client) get(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+path, nil)
	if err != nil {
		return errors.Wrap(err, "无法构造中继请求")
	}

	return c.do(req, out)
}

func (c *client) post(ctx context.Context, path string, body interface{}, out interface{}) error {
	bodyBytes, err := json.Marshal(body)
	if err != nil {
		return errors.Wrap(err, "无法序列化中继请求")
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+path, bytes.NewReader(bodyBytes))
	if err != nil {
		return errors.Wrap(err, "无法构造中继请求")
	}
	req.Header.Add("Content-Type", "application/json")

	return c.do(req, out)
}

// maxKeyBlobSize bounds a downloaded key blob.
const maxKeyBlobSize = 1 << 20

// fetchBlob downloads a raw key blob. `url` is absolute; the blob is not wrapped in an envelope.
func (c *client) fetchBlob(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, errors.Wrap(err, "无法构造密钥下载请求")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "无法下载密钥 '%v'", url)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("无法下载密钥 '%v' (%v)", url, resp.StatusCode)
	}

	blob, err := ioutil.ReadAll(io.LimitReader(resp.Body, maxKeyBlobSize))
	if err != nil {
		return nil, errors.Wrapf(err, "无法读取密钥 '%v'", url)
	}

	return blob, nil
}

// do performs the request and decodes the `response` part of the envelope into `out`.
// 200 -> envelope
// Other -> envelope message if any, or the response body as error message
func (c *client) do(req *http.Request, out interface{}) error {
	log.Tracef("中继请求: %v %v", req.Method, req.URL.Path)

	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Wrapf(err, "无法访问中继服务 '%v'", req.URL.Path)
	}
	defer resp.Body.Close()

	respBodyBytes, err := ioutil.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrap(err, "无法读取中继响应")
	}

	var envelope Envelope
	if err := json.Unmarshal(respBodyBytes, &envelope); err != nil {
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("中继服务错误 (%v): %v", resp.StatusCode, string(respBodyBytes))
		}
		return errors.Wrap(err, "无法解析中继响应")
	}

	if resp.StatusCode != http.StatusOK || envelope.Status == statusFailed {
		msg := envelope.Message
		if msg == "" {
			msg = string(respBodyBytes)
		}
		return fmt.Errorf("中继服务错误 (%v): %v", resp.StatusCode, msg)
	}

	if envelope.Status != statusSucceeded {
		return fmt.Errorf("中继服务返回未知状态 '%v'", envelope.Status)
	}

	if out == nil {
		return nil
	}

	if err := mapstructure.Decode(envelope.Response, out); err != nil {
		return errors.Wrap(err, "无法解析中继响应")
	}

	return nil
}
