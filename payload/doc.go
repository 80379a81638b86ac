/*
Package payload decodes the position blobs pushed by the dashboard feed.

Each blob is base64 text wrapping a gzip stream whose content is almost
always JSON. Decoding is a pure transform with no I/O or state:

	msg, err := payload.Decode(blob)
	if err != nil {
	    // *payload.DecodeError; only this message is lost
	}
	switch msg.Kind {
	case payload.KindStructured:
	    // msg.Value holds the parsed JSON document
	case payload.KindRaw:
	    // msg.Text holds plain text that is not JSON
	}

Text that does not parse as JSON is not an error: it is returned as a Raw
message.
*/
package payload
