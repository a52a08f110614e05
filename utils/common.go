package utils

// SMALL guards denominators built from flux magnitudes
const SMALL = 1.e-15
