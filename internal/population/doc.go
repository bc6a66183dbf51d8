// Package population builds the two data holders of a simulation run: the
// fixed electorate of voters and the initial candidate pool.
//
// Both constructors draw from a caller-supplied *rand.Rand so that a run is
// reproducible from its seed and independent runs never share a generator.
package population
