// Package funnel is a client for the Canonical Funnel REST API.
//
// A Client is bound to one base URL and, optionally, an API key sent as the
// x-api-key header. Each read method issues exactly one GET and decodes the
// JSON body into typed values:
//
//	c, err := funnel.New("https://api.example.com/", funnel.WithAPIKey("secret"))
//	if err != nil {
//		return err
//	}
//	groups, err := c.ListGroups(ctx)
//
// # Errors
//
// Failures are reported as one of [*TransportInitError], [*TransportError],
// [*DecodeError] or, when [WithStatusCheck] is set, [*StatusError]. Use
// [KindOf] or errors.As to branch on them. Nothing is retried or logged at
// error level by the client.
//
// # Status codes
//
// By default the HTTP status is not inspected: a non-2xx response whose body
// decodes into the expected shape is returned as a success. Pass
// [WithStatusCheck] to reject non-2xx responses before decoding.
package funnel
