package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/wesleyorama2/restclient/internal/config"
	"github.com/wesleyorama2/restclient/internal/watch"
	"github.com/wesleyorama2/restclient/pkg/jsonpath"
	"github.com/wesleyorama2/restclient/pkg/jsonschema"
	"github.com/wesleyorama2/restclient/rest"
)

type runOptions struct {
	request     string
	environment string
	watch       bool
	timeout     time.Duration
	insecure    bool
}

func newRunCmd(root *rootOptions) *cobra.Command {
	opts := &runOptions{}

	cmd := &cobra.Command{
		Use:   "run FILE",
		Short: "Run a named request from a request collection file",
		Long: `Run loads a YAML, JSON or TOML request collection, resolves the named
request against an environment and executes it. Values listed under
"extract" are pulled from the JSON response, and the response is validated
against the referenced schema when one is set.

RESTCLIENT_BASE_URL, RESTCLIENT_AUTHORIZATION and RESTCLIENT_VAR_<name>
override the file's environments.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]

			if !opts.watch {
				return opts.runOnce(cmd, root, path)
			}

			ctx, stop := signal.NotifyContext(contextOf(cmd), os.Interrupt)
			defer stop()
			cmd.SetContext(ctx)

			if err := opts.runOnce(cmd, root, path); err != nil {
				root.logger.Error().Err(err).Msg("run failed")
			}

			w := watch.New(path, root.logger)
			return w.Run(ctx, func() {
				fmt.Fprintf(cmd.OutOrStdout(), "\n--- %s changed, re-running %s ---\n", path, opts.request)
				if err := opts.runOnce(cmd, root, path); err != nil {
					root.logger.Error().Err(err).Msg("run failed")
				}
			})
		},
	}

	cmd.Flags().StringVarP(&opts.request, "request", "r", "", "Name of the request to run")
	cmd.Flags().StringVarP(&opts.environment, "env", "e", "", "Environment to use")
	cmd.Flags().BoolVarP(&opts.watch, "watch", "w", false, "Re-run whenever the file changes")
	cmd.Flags().DurationVarP(&opts.timeout, "timeout", "t", 30*time.Second, "Request timeout")
	cmd.Flags().BoolVar(&opts.insecure, "insecure", false, "Skip TLS certificate verification")
	_ = cmd.MarkFlagRequired("request")

	return cmd
}

func (o *runOptions) runOnce(cmd *cobra.Command, root *rootOptions, path string) error {
	cfg, err := config.LoadConfig(path)
	if err != nil {
		return err
	}
	config.ApplyEnv(cfg)

	if errs := config.ValidateConfig(cfg); len(errs) > 0 {
		msgs := make([]string, len(errs))
		for i, e := range errs {
			msgs[i] = e.Error()
		}
		return errors.Errorf("invalid config %s: %s", path, strings.Join(msgs, "; "))
	}

	resolved, err := config.Resolve(cfg, o.request, o.environment)
	if err != nil {
		return err
	}

	options := []rest.ClientOption{
		rest.WithBaseURL(resolved.BaseURL),
		rest.WithTimeout(o.timeout),
		rest.WithLogger(root.logger),
		rest.WithUserAgent("restclient/" + version),
		rest.WithCookieJar(),
	}
	if o.insecure {
		options = append(options, rest.WithInsecureSkipVerify())
	}
	client := rest.NewClient(options...)

	b := resolved.Apply(client.Request())

	return execute(cmd, root, client, b, func(resp *rest.ClientResponse[any]) error {
		return checkResponse(cmd, root, resolved, resp)
	})
}

// checkResponse extracts variables and validates the schema of a resolved
// response.
func checkResponse(cmd *cobra.Command, root *rootOptions, resolved *config.ResolvedRequest, resp *rest.ClientResponse[any]) error {
	formatter, err := root.formatter(cmd)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	var failures []string

	if len(resolved.Extract) > 0 {
		vars, err := jsonpath.ExtractAll(resp.Raw, resolved.Extract)
		fmt.Fprint(out, formatter.FormatVariables(vars))
		if err != nil {
			failures = append(failures, err.Error())
		}
	}

	if resolved.Schema != "" {
		schema, err := jsonschema.Compile(resolved.Schema)
		if err != nil {
			return err
		}
		err = schema.Validate(resp.Raw)
		fmt.Fprint(out, formatter.FormatSchemaResult(resolved.SchemaName, err))
		if err != nil {
			failures = append(failures, "schema: "+err.Error())
		}
	}

	if len(failures) > 0 {
		return errors.Errorf("request %s: %s", resolved.Name, strings.Join(failures, "; "))
	}
	return nil
}

func contextOf(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
