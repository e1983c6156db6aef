package cli

import (
	"fmt"
	"strings"
	"sync"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/wesleyorama2/restclient/internal/stats"
	"github.com/wesleyorama2/restclient/rest"
)

type benchOptions struct {
	requestOptions
	method      string
	requests    int
	concurrency int

	clock clock.Clock
}

func newBenchCmd(root *rootOptions) *cobra.Command {
	opts := &benchOptions{clock: clock.New()}

	cmd := &cobra.Command{
		Use:   "bench URL",
		Short: "Send many concurrent requests and report latency percentiles",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.requests < 1 {
				return errors.New("--requests must be at least 1")
			}
			if opts.concurrency < 1 {
				return errors.New("--concurrency must be at least 1")
			}
			// Validate the flags once, before any request is sent.
			if err := opts.apply(rest.NewBuilder(nil)); err != nil {
				return err
			}

			baseURL, path := parseURL(args[0])
			client := rest.NewClient(append(opts.clientOptions(root), rest.WithBaseURL(baseURL))...)

			summary := opts.run(cmd, root, client, path)

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s %s: %d requests, concurrency %d\n",
				strings.ToUpper(opts.method), client.BaseURL()+path, opts.requests, opts.concurrency)
			if err := summary.Render(out); err != nil {
				return err
			}

			if summary.Succeeded == 0 {
				return errors.Errorf("all %d requests failed", summary.Total)
			}
			return nil
		},
	}

	opts.addFlags(cmd.Flags(), true)
	cmd.Flags().StringVarP(&opts.method, "method", "X", "GET", "HTTP method")
	cmd.Flags().IntVarP(&opts.requests, "requests", "n", 100, "Total number of requests")
	cmd.Flags().IntVarP(&opts.concurrency, "concurrency", "c", 10, "Number of concurrent workers")

	return cmd
}

// run issues the requests over a fixed pool of workers. Every request gets
// its own builder.
func (o *benchOptions) run(cmd *cobra.Command, root *rootOptions, client *rest.Client, path string) stats.Summary {
	recorder := stats.NewRecorder(o.clock)
	ctx := contextOf(cmd)

	jobs := make(chan struct{})
	var wg sync.WaitGroup

	recorder.Start()
	for i := 0; i < o.concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range jobs {
				b := client.Request().WithMethod(strings.ToUpper(o.method)).WithURI(path)
				if err := o.apply(b); err != nil {
					recorder.Record(0, nil, err)
					root.logger.Debug().Err(err).Msg("bench request not sent")
					continue
				}

				start := o.clock.Now()
				resp, err := b.Go(ctx).Wait()
				recorder.Record(o.clock.Since(start), resp, err)

				if err != nil {
					root.logger.Debug().Err(err).Msg("bench request failed")
				}
			}
		}()
	}

	for i := 0; i < o.requests; i++ {
		if ctx.Err() != nil {
			break
		}
		jobs <- struct{}{}
	}
	close(jobs)
	wg.Wait()
	recorder.Stop()

	return recorder.Summary()
}
