// The x/dispatcher module connects local modules to a remote chain over IBC-style channels.
// It owns a single zk light client of the remote chain, whose consensus transitions are checked with succinct proofs,
// and verifies every channel handshake and packet against the state root that client trusts.
// Relayer fees attached to outgoing packets are escrowed by the module account and paid to the relayer that resolves the packet.
package dispatcher
