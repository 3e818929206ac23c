package example

import (
	"errors"

	"github.com/fagongzi/fixalloc"
	"github.com/fagongzi/fixalloc/buf"
	"github.com/fagongzi/fixalloc/list"
	"go.uber.org/zap"
)

var (
	// ErrQueueFull the queue holds its max number of messages
	ErrQueueFull = errors.New("queue full")
)

// MessageQueue a bounded FIFO of byte messages. Message bodies up to blockSize
// bytes are copied into fixed blocks, larger ones and overflow go to the heap.
type MessageQueue struct {
	blocks    *buf.BlockAllocator
	allocator buf.Allocator
	messages  *list.List[[]byte]
}

// NewMessageQueue create a queue of at most maxMessages messages
func NewMessageQueue(maxMessages, blockSize, blocks int, logger *zap.Logger) (*MessageQueue, error) {
	blockAllocator, err := buf.NewBlockAllocator(blockSize, blocks, buf.WithLogger(logger))
	if err != nil {
		return nil, err
	}
	messages, err := list.NewWithCapacity[[]byte](maxMessages*list.NodeSize[[]byte](), fixalloc.WithLogger(logger))
	if err != nil {
		blockAllocator.Close()
		return nil, err
	}

	return &MessageQueue{
		blocks:    blockAllocator,
		allocator: buf.NewFallbackAllocator(blockAllocator, buf.NewHeapAllocator(), logger),
		messages:  messages,
	}, nil
}

// Push copy msg into the queue
func (q *MessageQueue) Push(msg []byte) error {
	var data []byte
	var err error
	if len(msg) <= q.blocks.BlockSize() && len(msg) > 0 {
		data, err = q.allocator.Alloc(len(msg))
	} else {
		data = make([]byte, len(msg))
	}
	if err != nil {
		return err
	}
	copy(data, msg)

	if err := q.messages.PushBack(data); err != nil {
		if ferr := q.allocator.Free(data); ferr != nil {
			return ferr
		}
		if errors.Is(err, fixalloc.ErrExhausted) {
			return ErrQueueFull
		}
		return err
	}
	return nil
}

// Pop returns a copy of the oldest message, false if the queue is empty
func (q *MessageQueue) Pop() ([]byte, bool, error) {
	data, ok := q.messages.PopFront()
	if !ok {
		return nil, false, nil
	}

	msg := make([]byte, len(data))
	copy(msg, data)
	return msg, true, q.allocator.Free(data)
}

// Len returns the number of queued messages
func (q *MessageQueue) Len() int {
	return q.messages.Len()
}

// BlocksInUse returns the number of blocks holding queued messages
func (q *MessageQueue) BlocksInUse() int {
	return q.blocks.InUse()
}

// Close release the queue memory
func (q *MessageQueue) Close() error {
	if err := q.messages.Close(); err != nil {
		return err
	}
	return q.blocks.Close()
}
