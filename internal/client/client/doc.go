// Package client contains the client-side building blocks that talk to the
// sync server and open the local database.
//
// # Overview
//
//  1. A transport-agnostic API contract (the Client interface): Register,
//     Login, Ping, row upsert and delta fetch per collection, and presigned
//     backup URLs.
//  2. An HTTP+JSON implementation (HTTPClient) that injects the bearer token
//     from a TokenSource and maps HTTP status codes to sentinel errors.
//  3. Local persistence bootstrap (InitDatabase, RunMigrations) that opens
//     the SQLite database and applies the embedded goose migrations.
//
// # Error Handling
//
// Transport failures, timeouts and 5xx answers map to ErrUnavailable;
// 401/403 to ErrUnauthorized; 409 to ErrAlreadyExists; other 4xx to
// ErrBadRequest. Callers match them with errors.Is.
package client
