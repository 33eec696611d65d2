// Package stream fans newly created posts out to live subscribers by
// hashtag.
//
// A Registry keeps, per hashtag, the ordered list of delivery callbacks of
// every subscriber. Publish extracts the hashtags of a post's text and
// invokes the matching callbacks in subscription order. A callback reports
// whether its subscriber is still alive; dead subscribers are removed in the
// same pass. There is no explicit unsubscribe: a subscriber whose connection
// went away is only discovered on the next matching delivery.
//
// Subscriber is the connection-bound end of a subscription. Its Deliver
// method is the callback handed to Subscribe, and Next parks the connection
// goroutine until a post arrives or the connection ends.
package stream
