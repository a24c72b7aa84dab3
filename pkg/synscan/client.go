// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Pau Ferrer, OpenAstro

package synscan

import (
	"bytes"
	"errors"
	"fmt"
	"net"
	"time"
)

// Client speaks the request/reply protocol over a Conn. One exchange is one
// command frame followed by one reply; there are no retries at this layer.
// A Client is not safe for concurrent use, callers serialize.
type Client struct {
	conn    Conn
	timeout time.Duration
	buf     []byte
}

// NewClient wraps conn with the default exchange timeout.
func NewClient(conn Conn) *Client {
	return &Client{
		conn:    conn,
		timeout: DefaultTimeout,
		buf:     make([]byte, 64),
	}
}

// SetTimeout changes the per-exchange deadline. Non-positive values keep
// the default.
func (c *Client) SetTimeout(d time.Duration) {
	if d > 0 {
		c.timeout = d
	}
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

// Exchange sends one frame and returns the reply payload. Controller '!'
// replies surface as *ControllerError, garbage as *DecodeError, silence as
// ErrNoReply; all are wrapped with the command and axis for context.
func (c *Client) Exchange(cmd byte, axis Axis, payload string) (string, error) {
	frame, err := EncodeFrame(cmd, axis, payload)
	if err != nil {
		return "", err
	}
	if _, err := c.conn.Write(frame); err != nil {
		return "", fmt.Errorf("%s %s: send: %w", FormatCommand(cmd), axis, err)
	}
	raw, err := c.readReply()
	if err != nil {
		return "", fmt.Errorf("%s %s: %w", FormatCommand(cmd), axis, err)
	}
	reply, err := ParseReply(raw)
	if err != nil {
		return "", fmt.Errorf("%s %s: %w", FormatCommand(cmd), axis, err)
	}
	return reply, nil
}

// SendCmd exchanges a query with no payload and decodes the numeric reply.
// Bare acknowledgements decode as 0.
func (c *Client) SendCmd(cmd byte, axis Axis) (int, error) {
	reply, err := c.Exchange(cmd, axis, "")
	if err != nil || reply == "" {
		return 0, err
	}
	v, err := DecodeValue(reply)
	if err != nil {
		return 0, fmt.Errorf("%s %s: %w", FormatCommand(cmd), axis, err)
	}
	return v, nil
}

// SendCmdValue exchanges a command carrying value at the given digit width.
func (c *Client) SendCmdValue(cmd byte, axis Axis, value, digits int) (int, error) {
	payload, err := EncodeValue(value, digits)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", FormatCommand(cmd), err)
	}
	reply, err := c.Exchange(cmd, axis, payload)
	if err != nil || reply == "" {
		return 0, err
	}
	v, err := DecodeValue(reply)
	if err != nil {
		return 0, fmt.Errorf("%s %s: %w", FormatCommand(cmd), axis, err)
	}
	return v, nil
}

// Raw sends a hand-built frame and returns the raw reply bytes, terminator
// stripped. The ':' lead and trailing CR are added when missing. No reply
// parsing happens here, callers see exactly what the controller sent.
func (c *Client) Raw(frame string) ([]byte, error) {
	if frame == "" {
		return nil, fmt.Errorf("empty frame")
	}
	if frame[0] != FrameLead {
		frame = string(FrameLead) + frame
	}
	if frame[len(frame)-1] != FrameEnd {
		frame += string(FrameEnd)
	}
	if _, err := c.conn.Write([]byte(frame)); err != nil {
		return nil, fmt.Errorf("send raw frame: %w", err)
	}
	raw, err := c.readReply()
	if err != nil {
		return nil, err
	}
	return bytes.TrimRight(raw, "\r\n"), nil
}

// readReply accumulates bytes until the frame terminator or the exchange
// deadline. Serial transports poll with zero-byte reads; UDP transports
// surface deadline errors. Both end as ErrNoReply here.
func (c *Client) readReply() ([]byte, error) {
	deadline := time.Now().Add(c.timeout)
	var reply []byte
	for {
		n, err := c.conn.Read(c.buf)
		if n > 0 {
			reply = append(reply, c.buf[:n]...)
			if i := bytes.IndexByte(reply, FrameEnd); i >= 0 {
				return reply[:i+1], nil
			}
		}
		if err != nil {
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				return nil, ErrNoReply
			}
			return nil, err
		}
		if !time.Now().Before(deadline) {
			return nil, ErrNoReply
		}
	}
}
