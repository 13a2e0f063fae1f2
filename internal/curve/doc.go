// Package curve is the pricing and state core of a segmented bonding curve.
//
// It converts a basis-point allocation into absolute supply buckets,
// resolves a piecewise price schedule over the tradable bucket, prices buys
// and sells across constant, linear and exponential segments (or over
// constant-product virtual reserves), and checks curve counters against the
// balances held in custody.
//
// Every function is pure. States are values: operations return a new state
// and never modify their input, so a failed trade leaves nothing behind.
// Callers must serialize writes per curve.
package curve
