// Package result turns a raw HTTP response into a Result or a classified error.
//
// Classification order:
//  1. status outside 2xx: HTTPError
//  2. body is not a JSON object: ReadError
//  3. "ok" is falsy: PlatformError, with the whole envelope as Data
//  4. otherwise: Result, with X-OAuth-Scopes, X-Accepted-OAuth-Scopes and
//     Retry-After merged into Data as scopes, acceptedScopes and retryAfter
package result
