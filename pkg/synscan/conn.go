// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Pau Ferrer, OpenAstro

package synscan

import (
	"fmt"
	"net"
	"strconv"
	"time"

	"go.bug.st/serial"
)

// Conn is a byte-stream connection to a motor controller.
type Conn interface {
	Read(p []byte) (n int, err error)
	Write(p []byte) (n int, err error)
	Close() error
}

// UDPConn talks to the SynScan Wi-Fi adapter, one frame per datagram.
type UDPConn struct {
	conn    net.Conn
	timeout time.Duration
}

// DialUDP connects to a controller at host:port. A non-positive timeout
// selects DefaultTimeout.
func DialUDP(host string, port int, timeout time.Duration) (*UDPConn, error) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	addr := net.JoinHostPort(host, strconv.Itoa(port))
	conn, err := net.DialTimeout("udp", addr, timeout)
	if err != nil {
		return nil, fmt.Errorf("failed to reach controller at %s: %w", addr, err)
	}
	return &UDPConn{conn: conn, timeout: timeout}, nil
}

// Read arms a fresh deadline on every call so an unreachable controller
// surfaces as a timeout instead of a hang.
func (uc *UDPConn) Read(p []byte) (int, error) {
	if err := uc.conn.SetReadDeadline(time.Now().Add(uc.timeout)); err != nil {
		return 0, err
	}
	return uc.conn.Read(p)
}

func (uc *UDPConn) Write(p []byte) (int, error) {
	if err := uc.conn.SetWriteDeadline(time.Now().Add(uc.timeout)); err != nil {
		return 0, err
	}
	return uc.conn.Write(p)
}

func (uc *UDPConn) Close() error {
	return uc.conn.Close()
}

// serialReadPoll makes serial reads return periodically with no data so the
// client can enforce its own exchange deadline.
const serialReadPoll = 200 * time.Millisecond

// SerialConn talks to a motor board over a direct RS-232 link.
type SerialConn struct {
	port serial.Port
}

// OpenSerial opens portName at baudRate with 8N1 framing.
func OpenSerial(portName string, baudRate int) (*SerialConn, error) {
	mode := &serial.Mode{
		BaudRate: baudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	port, err := serial.Open(portName, mode)
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %s: %w", portName, err)
	}
	if err := port.SetReadTimeout(serialReadPoll); err != nil {
		port.Close()
		return nil, fmt.Errorf("failed to configure serial port %s: %w", portName, err)
	}
	return &SerialConn{port: port}, nil
}

func (sc *SerialConn) Read(p []byte) (int, error) {
	return sc.port.Read(p)
}

func (sc *SerialConn) Write(p []byte) (int, error) {
	return sc.port.Write(p)
}

func (sc *SerialConn) Close() error {
	return sc.port.Close()
}
