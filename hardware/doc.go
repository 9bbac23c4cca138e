// Package hardware is the base package for the console emulation. It and its
// sub-packages contain everything required for a headless emulation: the
// ARM9 and ARM11 cores, the Teak DSP, the bus and MMU/PU address
// translation, the interrupt distributor, the IPC mailbox, the I2C bus and
// the scheduler that drives all of them.
//
// The System type is the root of the emulation and owns every backing memory
// buffer and every subsystem. From here the emulation can be run one frame
// at a time, or reset (cold or warm).
package hardware

