// SPDX-FileCopyrightText: 2025 Jon Thor Kristinsson
// SPDX-License-Identifier: Apache-2.0

package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"

	"github.com/jontk/bb-agent/pkg/wire"
)

// TCP is a Transport that dials a TCP address, writes a length-prefixed
// JSON-encoded Message, reads back a length-prefixed JSON-encoded
// Response, and closes the connection. It honors ctx's deadline for the
// whole connect/send/receive/shutdown sequence.
type TCP struct {
	Dialer net.Dialer
}

var _ Transport = (*TCP)(nil)

func (t *TCP) Send(ctx context.Context, address string, msg Message) (Response, error) {
	conn, err := t.Dialer.DialContext(ctx, "tcp", address)
	if err != nil {
		return Response{}, fmt.Errorf("connect %s: %w", address, err)
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		if err := conn.SetDeadline(deadline); err != nil {
			return Response{}, fmt.Errorf("set deadline: %w", err)
		}
	}

	// Belt-and-suspenders: net.Conn does not honor context cancellation on
	// its own, only SetDeadline/Close do. The deadline above covers the
	// normal case; this goroutine closes the connection on ctx.Done() so a
	// parent cancellation still unblocks a blocked Write/ReadFull even if
	// no deadline was set.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	payload, err := json.Marshal(msg)
	if err != nil {
		return Response{}, fmt.Errorf("encode request: %w", err)
	}

	p := wire.NewPacker()
	p.PackStr(string(payload))
	if _, err := conn.Write(p.Bytes()); err != nil {
		return Response{}, fmt.Errorf("send: %w", err)
	}

	lenBuf := make([]byte, 4)
	if _, err := io.ReadFull(conn, lenBuf); err != nil {
		return Response{}, fmt.Errorf("receive length: %w", err)
	}
	u := wire.NewUnpacker(lenBuf)
	n, err := u.UnpackU32()
	if err != nil {
		return Response{}, fmt.Errorf("decode length: %w", err)
	}

	body := make([]byte, n)
	if _, err := io.ReadFull(conn, body); err != nil {
		return Response{}, fmt.Errorf("receive body: %w", err)
	}

	var resp Response
	if err := json.Unmarshal(body, &resp); err != nil {
		return Response{}, fmt.Errorf("decode response: %w", err)
	}
	return resp, nil
}
