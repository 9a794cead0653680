// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package traceroute

import (
	"context"
	"errors"
	"net"
	"net/netip"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEchoProber_probe(t *testing.T) {
	dst := netip.MustParseAddr("192.0.2.1")
	router := &net.IPAddr{IP: net.IPv4(10, 0, 0, 1)}
	writeErr := errors.New("network is unreachable")

	tests := []struct {
		name        string
		openErr     error
		writeErr    error
		pkt         icmpPacket
		readErr     error
		wantErr     error
		wantWrites  int
		wantCloses  int
		wantOutcome Outcome
	}{
		{
			name:        "time exceeded",
			pkt:         icmpPacket{remoteAddr: router, kind: kindTimeExceeded},
			wantWrites:  1,
			wantCloses:  1,
			wantOutcome: OutcomeTTLExpired,
		},
		{
			name:        "echo reply",
			pkt:         icmpPacket{remoteAddr: &net.IPAddr{IP: dst.AsSlice()}, kind: kindEchoReply},
			wantWrites:  1,
			wantCloses:  1,
			wantOutcome: OutcomeSuccess,
		},
		{
			name:        "unreachable",
			pkt:         icmpPacket{remoteAddr: router, kind: kindUnreachable, code: 1},
			wantWrites:  1,
			wantCloses:  1,
			wantOutcome: OutcomeUnreachable,
		},
		{
			name:       "timeout",
			readErr:    context.DeadlineExceeded,
			wantErr:    context.DeadlineExceeded,
			wantWrites: 1,
			wantCloses: 1,
		},
		{
			name:       "socket not permitted",
			openErr:    os.ErrPermission,
			wantErr:    os.ErrPermission,
			wantWrites: 0,
			wantCloses: 0,
		},
		{
			name:       "write fails",
			writeErr:   writeErr,
			wantErr:    writeErr,
			wantWrites: 1,
			wantCloses: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conn := &echoConnMock{
				WriteEchoFunc: func(context.Context, echoRequest) error { return tt.writeErr },
				ReadFunc:      func(context.Context) (icmpPacket, error) { return tt.pkt, tt.readErr },
				CloseFunc:     func() error { return nil },
			}
			p := &echoProber{
				id:      4242,
				payload: make([]byte, DefaultPayloadSize),
				newConn: func(gotDst netip.Addr, ttl int) (echoConn, error) {
					assert.Equal(t, dst, gotDst)
					assert.Equal(t, 7, ttl)
					if tt.openErr != nil {
						return nil, tt.openErr
					}
					return conn, nil
				},
			}

			ctx, cancel := context.WithTimeout(t.Context(), time.Second)
			defer cancel()
			got, err := p.probe(ctx, dst, 7)

			assert.Len(t, conn.WriteEchoCalls(), tt.wantWrites)
			assert.Len(t, conn.CloseCalls(), tt.wantCloses, "the socket must be released after every probe")
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantOutcome, got.outcome)
			assert.Equal(t, tt.pkt.remoteAddr, got.from)
			assert.GreaterOrEqual(t, got.rtt, time.Duration(0))

			req := conn.WriteEchoCalls()[0].Req
			assert.Equal(t, 4242, req.id)
			assert.Equal(t, 7, req.seq, "the ttl is used as sequence number")
			assert.Len(t, req.payload, DefaultPayloadSize)
		})
	}
}
