// Package rest provides a fluent HTTP request builder with typed,
// deferred responses.
//
// A Builder accumulates the URI, method, headers, query parameters, body,
// authorization and credentials mode of one request. Go snapshots that
// configuration, sends it through a Transport on its own goroutine and
// returns a Future that resolves exactly once.
//
// Basic Usage:
//
//	client := rest.NewClient(
//	    rest.WithBaseURL("https://api.example.com"),
//	    rest.WithTimeout(30*time.Second),
//	)
//
//	b := client.Request().
//	    WithMethod("GET").
//	    WithURI("/users").
//	    WithURISegment(123).
//	    WithHeader("Accept", "application/json").
//	    WithAuthorization("Bearer token")
//
//	resp, err := rest.Go[User](ctx, b).Wait()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(resp.StatusCode, resp.Body.Name)
//
// Error Handling:
//
// Only 2xx responses resolve the Future. Everything else rejects it:
//
//	_, err := rest.Go[User](ctx, b).Wait()
//	switch {
//	case errors.Is(err, rest.ErrNotFound):
//	    // 404
//	case rest.IsNetworkError(err):
//	    // no response received
//	}
//
// Repeated query parameter names accumulate:
//
//	b.WithParameter("id", 1).WithParameter("id", 2) // ?id=1&id=2
//
// Thread Safety:
//
// Client and Future are safe for concurrent use. Builder is not; configure
// it from one goroutine, then execute it.
package rest
