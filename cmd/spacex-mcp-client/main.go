// Command spacex-mcp-client starts a spacex-mcp-server process and issues a
// single tool call against it, printing the result to stdout.
//
//	spacex-mcp-client -tool getRocketById -id 5e9d0d95eda69955f709d1eb
//	spacex-mcp-client -list
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/exec"
	"os/signal"
	"time"

	"github.com/shaharia-lab/spacex-mcp/mcp"
	"github.com/shaharia-lab/spacex-mcp/observability"
	"github.com/shaharia-lab/spacex-mcp/tools"
)

type options struct {
	serverPath string
	tool       string
	id         string
	list       bool
	timeout    time.Duration
	logLevel   string
}

func main() {
	var opts options
	flag.StringVar(&opts.serverPath, "server", "spacex-mcp-server", "path to the server binary")
	flag.StringVar(&opts.tool, "tool", tools.GetLatestLaunch.String(), "tool to call")
	flag.StringVar(&opts.id, "id", "", "id parameter for the *ById tools")
	flag.BoolVar(&opts.list, "list", false, "list the announced tools and exit")
	flag.DurationVar(&opts.timeout, "timeout", time.Minute, "overall deadline")
	flag.StringVar(&opts.logLevel, "log-level", "warn", "client log level")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, opts, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "spacex-mcp-client: %v\n", err)
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, opts options, out io.Writer) error {
	ctx, cancel := context.WithTimeout(ctx, opts.timeout)
	defer cancel()

	logger, err := observability.NewLogger(observability.BackendLogrus, opts.logLevel, os.Stderr)
	if err != nil {
		return err
	}

	cmd := exec.CommandContext(ctx, opts.serverPath)
	cmd.Stderr = os.Stderr
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("failed to open server stdin: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("failed to open server stdout: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}
	logger.WithFields(map[string]interface{}{"pid": cmd.Process.Pid}).Debug("Server started")

	callErr := call(ctx, opts, logger, stdin, stdout, out)

	_ = stdin.Close()
	waitErr := cmd.Wait()
	if callErr != nil {
		return callErr
	}
	if waitErr != nil {
		return fmt.Errorf("server exited: %w", waitErr)
	}
	return nil
}

func call(ctx context.Context, opts options, logger observability.Logger, w io.Writer, r io.Reader, out io.Writer) error {
	client := mcp.NewStdIOClient(mcp.StdIOClientConfig{
		Logger: logger,
		Reader: r,
		Writer: w,
	})

	if _, err := client.Connect(ctx); err != nil {
		return err
	}

	var result interface{}
	if opts.list {
		result = client.Tools()
	} else {
		var params interface{}
		if opts.id != "" {
			params = tools.IDParams{ID: opts.id}
		}
		raw, err := client.Call(ctx, opts.tool, params)
		if err != nil {
			return err
		}
		result = raw
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}
