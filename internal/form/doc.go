// Package form serializes a method's argument map into a request body.
//
// Two encodings are produced:
//   - URLEncoded: every value is text
//   - Multipart: at least one value is binary (io.Reader, []byte, File)
//
// Built on:
//   - sonic: JSON text for structured values
//   - mimetype: content type detection for binary parts
//
// Output is deterministic: the same map always yields an equivalent body,
// whatever the iteration order.
//
// Example Usage:
//
//	body, err := form.Serialize(map[string]any{"channel": "C1", "text": "hi"})
//	fmt.Println(body.Kind, body.Encode())
package form
