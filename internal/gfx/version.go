package gfx

// APIVersion is the engine API version stamped into every archive's
// debug chunk. Readers compare it against their own and log a notice on
// mismatch; it does not gate loading.
const APIVersion uint32 = 0x0002_0005
