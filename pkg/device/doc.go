// Package device describes cameras and picks the one best suited to long
// exposures.
//
// The astro camera is the back-facing camera with manual sensor control and
// the longest maximum exposure time. Ties go to the larger photosite, which
// gathers more light per pixel.
package device
