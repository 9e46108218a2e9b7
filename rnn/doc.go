// Package rnn drives a recurrent unit over a sequence of timesteps.
//
// A Unit takes one timestep of per-node inputs and the previous state tuple
// and returns per-node outputs and the next state tuple. Unroll threads the
// state strictly from one step to the next; a step never starts before the
// previous step's full state exists.
//
// Sequences are time-major: seq[t][k] is the [batch, features] input of the
// node with index k at step t. FromBatchMajor and BatchFirst convert from and
// to the [batch][time][node][features] layout used by feature extractors.
package rnn
