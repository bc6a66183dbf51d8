// Package report renders simulation results for people and tools: a text
// summary and generation table, JSON documents, and CSV exports of the
// election summary, candidate trajectories and individual ballots.
package report
