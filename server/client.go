package server

import (
	"context"
	"strings"
	"time"

	"connectrpc.com/connect"

	"github.com/chazu/rebound/vm"
)

// Client calls an execution server.
type Client struct {
	call    *connect.Client[CallRequest, CallResponse]
	resume  *connect.Client[ResumeRequest, CallResponse]
	discard *connect.Client[DiscardRequest, DiscardResponse]
	outcome *connect.Client[OutcomeRequest, CallResponse]
}

// NewClient creates a client for the server at baseURL.
func NewClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *Client {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = append([]connect.ClientOption{connect.WithCodec(cborCodec{})}, opts...)
	return &Client{
		call:    connect.NewClient[CallRequest, CallResponse](httpClient, baseURL+CallProcedure, opts...),
		resume:  connect.NewClient[ResumeRequest, CallResponse](httpClient, baseURL+ResumeProcedure, opts...),
		discard: connect.NewClient[DiscardRequest, DiscardResponse](httpClient, baseURL+DiscardProcedure, opts...),
		outcome: connect.NewClient[OutcomeRequest, CallResponse](httpClient, baseURL+OutcomeProcedure, opts...),
	}
}

// Call starts a chain calling function with args.
func (c *Client) Call(ctx context.Context, function string, args ...vm.Value) (*CallResponse, error) {
	wire, err := EncodeValues(args)
	if err != nil {
		return nil, err
	}
	res, err := c.call.CallUnary(ctx, connect.NewRequest(&CallRequest{Function: function, Args: wire}))
	if err != nil {
		return nil, err
	}
	return res.Msg, nil
}

// Resume continues the paused chain with the given continuation id. A nil
// budget uses the server's.
func (c *Client) Resume(ctx context.Context, continuation string, budget *int64) (*CallResponse, error) {
	res, err := c.resume.CallUnary(ctx, connect.NewRequest(&ResumeRequest{Continuation: continuation, Budget: budget}))
	if err != nil {
		return nil, err
	}
	return res.Msg, nil
}

// Discard drops a paused chain.
func (c *Client) Discard(ctx context.Context, continuation string) (bool, error) {
	res, err := c.discard.CallUnary(ctx, connect.NewRequest(&DiscardRequest{Continuation: continuation}))
	if err != nil {
		return false, err
	}
	return res.Msg.Discarded, nil
}

// Outcome returns the latest state of a chain.
func (c *Client) Outcome(ctx context.Context, chain string) (*CallResponse, error) {
	res, err := c.outcome.CallUnary(ctx, connect.NewRequest(&OutcomeRequest{Chain: chain}))
	if err != nil {
		return nil, err
	}
	return res.Msg, nil
}

// Drive runs a chain to completion from resp: paused chains are resumed
// and awaiting chains are polled every interval.
func (c *Client) Drive(ctx context.Context, resp *CallResponse, interval time.Duration) (*CallResponse, error) {
	var err error
	for !resp.Done() {
		switch resp.State {
		case vm.Paused.String():
			resp, err = c.Resume(ctx, resp.Continuation, nil)
		case vm.AwaitingTask.String():
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(interval):
			}
			resp, err = c.Outcome(ctx, resp.Chain)
		default:
			return resp, nil
		}
		if err != nil {
			return nil, err
		}
	}
	return resp, nil
}
