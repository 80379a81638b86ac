// Package feed owns the live subscription to the dashboard's push backend.
//
// Connect dials the backend, moves the Connection to Connected, and
// immediately emits the onFts-reload subscription request built from the
// Session. Inbound onFts-client events are decoded item by item and handed
// to a Reporter; error events are reported without closing the connection.
//
// KeepAlive re-emits the same request on a fixed interval. The first failed
// emission stops it for good; nothing in this package reconnects.
//
//	conn, err := feed.Connect(ctx, serverURL, sess, reporter)
//	if err != nil {
//	    return err // *feed.ConnectError or *feed.EmitError
//	}
//	defer conn.Close()
//	err = feed.NewKeepAlive(sess, conn, reporter).Run(ctx)
package feed
