package cli

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/wesleyorama2/restclient/rest"
)

// requestOptions are the flags shared by the verb commands.
type requestOptions struct {
	headers       []string
	params        []string
	form          []string
	json          string
	authorization string
	credentials   string
	timeout       time.Duration
	insecure      bool
}

func (o *requestOptions) addFlags(fs *pflag.FlagSet, withBody bool) {
	fs.StringArrayVarP(&o.headers, "header", "H", nil, "HTTP header as key:value (can be used multiple times)")
	fs.StringArrayVarP(&o.params, "param", "p", nil, "Query parameter as name=value (can be used multiple times)")
	fs.StringVarP(&o.authorization, "auth", "a", "", "Authorization header value")
	fs.StringVar(&o.credentials, "credentials", string(rest.CredentialsSameOrigin), "Credentials mode (omit, same-origin, include)")
	fs.DurationVarP(&o.timeout, "timeout", "t", 30*time.Second, "Request timeout")
	fs.BoolVar(&o.insecure, "insecure", false, "Skip TLS certificate verification")
	if withBody {
		fs.StringVarP(&o.json, "json", "j", "", "JSON data to send in the request body")
		fs.StringArrayVarP(&o.form, "form", "f", nil, "Form field as key=value (can be used multiple times)")
	}
}

// apply configures b from the flags. It fails before anything is sent.
func (o *requestOptions) apply(b *rest.Builder) error {
	credentials, err := rest.ParseCredentials(o.credentials)
	if err != nil {
		return err
	}
	b.WithCredentials(credentials)

	for _, header := range o.headers {
		key, value, ok := strings.Cut(header, ":")
		if !ok || strings.TrimSpace(key) == "" {
			return errors.Errorf("invalid header %q (want key:value)", header)
		}
		b.WithHeader(strings.TrimSpace(key), strings.TrimSpace(value))
	}

	for _, param := range o.params {
		name, value, ok := strings.Cut(param, "=")
		if !ok || name == "" {
			return errors.Errorf("invalid parameter %q (want name=value)", param)
		}
		b.WithParameter(name, value)
	}

	b.WithAuthorization(o.authorization)

	if o.json != "" && len(o.form) > 0 {
		return errors.New("--json and --form cannot be combined")
	}
	if o.json != "" {
		if !json.Valid([]byte(o.json)) {
			return errors.New("--json is not valid JSON")
		}
		b.WithJSONBody(json.RawMessage(o.json))
	}
	if len(o.form) > 0 {
		data := make(url.Values)
		for _, field := range o.form {
			key, value, ok := strings.Cut(field, "=")
			if !ok || key == "" {
				return errors.Errorf("invalid form field %q (want key=value)", field)
			}
			data.Add(key, value)
		}
		b.WithFormData(data)
	}

	return nil
}

func (o *requestOptions) clientOptions(root *rootOptions) []rest.ClientOption {
	options := []rest.ClientOption{
		rest.WithTimeout(o.timeout),
		rest.WithLogger(root.logger),
		rest.WithUserAgent("restclient/" + version),
		rest.WithCookieJar(),
	}
	if o.insecure {
		options = append(options, rest.WithInsecureSkipVerify())
	}
	return options
}

func newMethodCmd(root *rootOptions, method string) *cobra.Command {
	opts := &requestOptions{}
	withBody := method != "GET" && method != "DELETE"

	cmd := &cobra.Command{
		Use:   strings.ToLower(method) + " URL",
		Short: fmt.Sprintf("Make a %s request to the specified URL", method),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			baseURL, path := parseURL(args[0])

			client := rest.NewClient(append(opts.clientOptions(root), rest.WithBaseURL(baseURL))...)
			b := client.Request().WithMethod(method).WithURI(path)
			if err := opts.apply(b); err != nil {
				return err
			}

			return execute(cmd, root, client, b, nil)
		},
	}
	opts.addFlags(cmd.Flags(), withBody)

	return cmd
}

// execute prints the request, sends it and prints the outcome. onSuccess,
// when set, runs on the resolved response before execute returns.
func execute(cmd *cobra.Command, root *rootOptions, client *rest.Client, b *rest.Builder, onSuccess func(*rest.ClientResponse[any]) error) error {
	formatter, err := root.formatter(cmd)
	if err != nil {
		return err
	}

	req, err := b.Build()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprint(out, formatter.FormatRequest(req, client.BaseURL()))

	resp, err := b.Go(contextOf(cmd)).Wait()
	if err != nil {
		fmt.Fprint(out, formatter.FormatError(err))
		return err
	}

	fmt.Fprint(out, formatter.FormatResponse(resp))

	if onSuccess != nil {
		return onSuccess(resp)
	}
	return nil
}

// parseURL splits a URL into base URL and path
func parseURL(fullURL string) (string, string) {
	if !strings.HasPrefix(fullURL, "http://") && !strings.HasPrefix(fullURL, "https://") {
		fullURL = "http://" + fullURL
	}

	parsedURL, err := url.Parse(fullURL)
	if err != nil {
		return fullURL, "/"
	}

	baseURL := fmt.Sprintf("%s://%s", parsedURL.Scheme, parsedURL.Host)
	if parsedURL.User != nil {
		baseURL = fmt.Sprintf("%s://%s@%s", parsedURL.Scheme, parsedURL.User.String(), parsedURL.Host)
	}

	path := parsedURL.EscapedPath()
	if path == "" {
		path = "/"
	}
	if parsedURL.RawQuery != "" {
		path += "?" + parsedURL.RawQuery
	}
	if parsedURL.Fragment != "" {
		path += "#" + parsedURL.Fragment
	}

	return baseURL, path
}
