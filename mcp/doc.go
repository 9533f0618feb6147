// Package mcp implements a line-oriented tool server and client.
//
// A server writes one capability announcement line, then reads requests of
// the form {"method":..,"params":{..},"id":..}, one per line, and answers each
// with exactly one line in the same order. Successful calls are framed as
//
//	{"jsonrpc":"2.0","id":<echoed>,"result":..}
//
// and every failure as
//
//	{"error":"<message>","type":"processing_error"}
//
// Example:
//
//	package main
//
//	import (
//		"context"
//		"encoding/json"
//		"os"
//
//		"github.com/shaharia-lab/spacex-mcp/mcp"
//	)
//
//	func main() {
//		echo := mcp.Tool{
//			Name:        "echo",
//			Description: "Echo the given text",
//			Params:      []mcp.Param{{Name: "text", Type: "string"}},
//			Handler: func(ctx context.Context, params json.RawMessage) (interface{}, error) {
//				var in struct {
//					Text string `json:"text"`
//				}
//				if err := json.Unmarshal(params, &in); err != nil {
//					return nil, err
//				}
//				return in.Text, nil
//			},
//		}
//
//		base, err := mcp.NewBaseServer(mcp.UseServerInfo("echo-server", "0.1.0"))
//		if err != nil {
//			panic(err)
//		}
//		if err := base.AddTools(echo); err != nil {
//			panic(err)
//		}
//
//		server := mcp.NewStdIOServer(base, os.Stdin, os.Stdout)
//		if err := server.Run(context.Background()); err != nil {
//			panic(err)
//		}
//	}
package mcp
