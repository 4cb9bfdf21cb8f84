// Package timeline reads the host editing timeline export and turns one track
// of one sequence into the flat, index-ordered clip list the export engine
// works on.
//
// The host application writes a JSON document describing its sequences. This
// package picks the sequence (by name, preferring the one filed under the
// active subproject/locale folder), picks the first populated track (video
// before audio), and derives each clip's source material index from the
// leading digits of the asset it was cut from.
package timeline
