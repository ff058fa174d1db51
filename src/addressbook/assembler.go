package addressbook

import (
	"sync"

	"github.com/sirupsen/logrus"
	"go.uber.org/atomic"

	"github.com/mosaicnetworks/streamgate/src/common"
)

//StartEpsilon separates the end of a closed book from the start of its
//successor. A book completed at consensus timestamp t is effective from
//t+StartEpsilon; its predecessor ends at t.
const StartEpsilon int64 = 1

//Pending is the state of a slot's roster assembly between two fragments
type Pending struct {
	Slot  Slot
	Bytes []byte
	//LastConsensus is the timestamp of the last fragment applied to the slot
	LastConsensus int64
}

//Persister stores completed address books and the assembly in progress. It
//is called under the assembler lock, before the in-memory state changes.
type Persister interface {
	PutAddressBook(ab *AddressBook) error
	PutPendingAssembly(p Pending) error
}

//Assembler rebuilds address books from roster fragments. Apply is serialised;
//Current may be called from any goroutine and never blocks on Apply.
type Assembler struct {
	sync.Mutex

	buffers [2][]byte
	last    [2]int64
	current [2]*atomic.Pointer[AddressBook]

	persister Persister
	logger    *logrus.Entry
}

//NewAssembler creates an Assembler with no address book. persister may be
//nil.
func NewAssembler(persister Persister, logger *logrus.Entry) *Assembler {
	a := &Assembler{
		persister: persister,
		logger:    logger,
	}
	for i := range a.current {
		a.current[i] = atomic.NewPointer[AddressBook](nil)
		a.last[i] = -1
	}
	return a
}

//Apply adds a fragment to the buffer of its slot and returns the new address
//book if the buffer now holds a complete roster. A nil book and nil error
//means more fragments are needed. Fragments no later than the last one
//applied to the slot are ignored, so a file may be replayed after a failure.
//On error nothing changes.
func (a *Assembler) Apply(f Fragment) (*AddressBook, error) {
	if len(f.Bytes) == 0 {
		return nil, nil
	}

	a.Lock()
	defer a.Unlock()

	if f.ConsensusTimestamp <= a.last[f.Slot] {
		return nil, nil
	}
	if cur := a.current[f.Slot].Load(); cur != nil && f.ConsensusTimestamp < cur.StartConsensus {
		return nil, nil
	}

	var buf []byte
	if f.IsAppend {
		buf = make([]byte, 0, len(a.buffers[f.Slot])+len(f.Bytes))
		buf = append(buf, a.buffers[f.Slot]...)
	}
	buf = append(buf, f.Bytes...)

	ab, err := Parse(f.Slot, f.ConsensusTimestamp+StartEpsilon, buf)
	if err != nil {
		a.logger.WithFields(logrus.Fields{
			"slot":     f.Slot,
			"buffered": len(buf),
			"error":    err,
		}).Debug("Address book incomplete")

		if err := a.persistPending(Pending{Slot: f.Slot, Bytes: buf, LastConsensus: f.ConsensusTimestamp}); err != nil {
			return nil, err
		}
		a.buffers[f.Slot] = buf
		a.last[f.Slot] = f.ConsensusTimestamp
		return nil, nil
	}

	if err := a.persistBooks(ab, f.ConsensusTimestamp); err != nil {
		return nil, err
	}
	if err := a.persistPending(Pending{Slot: f.Slot, LastConsensus: f.ConsensusTimestamp}); err != nil {
		return nil, err
	}
	a.buffers[f.Slot] = nil
	a.last[f.Slot] = f.ConsensusTimestamp
	a.publish(ab)

	return ab, nil
}

//Bootstrap seeds a slot with an externally supplied roster, effective from
//start. It replaces whatever the slot held.
func (a *Assembler) Bootstrap(slot Slot, start int64, raw []byte) (*AddressBook, error) {
	ab, err := Parse(slot, start, raw)
	if err != nil {
		return nil, err
	}

	a.Lock()
	defer a.Unlock()

	if err := a.persistBooks(ab, start-StartEpsilon); err != nil {
		return nil, err
	}
	a.publish(ab)

	return ab, nil
}

//Restore publishes a previously persisted book without persisting it again
func (a *Assembler) Restore(ab *AddressBook) {
	a.Lock()
	defer a.Unlock()

	a.current[ab.Slot].Store(ab)
}

//RestorePending resumes an assembly interrupted by a restart
func (a *Assembler) RestorePending(p Pending) {
	a.Lock()
	defer a.Unlock()

	a.buffers[p.Slot] = append([]byte(nil), p.Bytes...)
	if p.LastConsensus > a.last[p.Slot] {
		a.last[p.Slot] = p.LastConsensus
	}
}

//PendingSlot returns the assembly in progress of a slot
func (a *Assembler) PendingSlot(slot Slot) Pending {
	a.Lock()
	defer a.Unlock()

	return Pending{
		Slot:          slot,
		Bytes:         append([]byte(nil), a.buffers[slot]...),
		LastConsensus: a.last[slot],
	}
}

//persistBooks stores ab and the previous book of its slot closed at end
func (a *Assembler) persistBooks(ab *AddressBook, end int64) error {
	if a.persister == nil {
		return nil
	}
	if prev := a.current[ab.Slot].Load(); prev != nil {
		if err := a.persister.PutAddressBook(prev.Closed(end)); err != nil {
			return common.WrapStreamErr(common.PersistenceFailure, ab.Slot.String()+" address book", err)
		}
	}
	if err := a.persister.PutAddressBook(ab); err != nil {
		return common.WrapStreamErr(common.PersistenceFailure, ab.Slot.String()+" address book", err)
	}
	return nil
}

func (a *Assembler) persistPending(p Pending) error {
	if a.persister == nil {
		return nil
	}
	if err := a.persister.PutPendingAssembly(p); err != nil {
		return common.WrapStreamErr(common.PersistenceFailure, p.Slot.String()+" pending address book", err)
	}
	return nil
}

func (a *Assembler) publish(ab *AddressBook) {
	a.current[ab.Slot].Store(ab)

	a.logger.WithFields(logrus.Fields{
		"slot":  ab.Slot,
		"nodes": ab.Len(),
		"start": ab.StartConsensus,
		"hash":  common.ShortHex(ab.Hash()),
	}).Info("New address book")
}

//CurrentSlot returns the latest address book of a slot
func (a *Assembler) CurrentSlot(slot Slot) (*AddressBook, error) {
	ab := a.current[slot].Load()
	if ab == nil {
		return nil, common.NewStreamErr(common.NoAddressBookAvailable, slot.String(), "no roster has completed")
	}
	return ab, nil
}

//Current returns the address book used to verify signatures: the secondary
//slot's when it exists, otherwise the primary's.
func (a *Assembler) Current() (*AddressBook, error) {
	for _, s := range Slots() {
		if ab := a.current[s].Load(); ab != nil {
			return ab, nil
		}
	}
	return nil, common.NewStreamErr(common.NoAddressBookAvailable, "address book", "no roster has completed")
}
