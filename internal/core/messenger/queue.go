package messenger

// queue 有界 FIFO 环形队列
//
// 不做同步，由 Core.mu 保护。
type queue struct {
	items []*QueuedMessage
	head  int
	size  int
}

func newQueue(capacity int) *queue {
	if capacity < 1 {
		capacity = 1
	}
	return &queue{items: make([]*QueuedMessage, capacity)}
}

func (q *queue) len() int { return q.size }

func (q *queue) capacity() int { return len(q.items) }

func (q *queue) full() bool { return q.size == len(q.items) }

// push 入队；队满时返回 false
func (q *queue) push(it *QueuedMessage) bool {
	if q.full() {
		return false
	}
	q.items[(q.head+q.size)%len(q.items)] = it
	q.size++
	return true
}

// peek 查看队首，不弹出
func (q *queue) peek() *QueuedMessage {
	if q.size == 0 {
		return nil
	}
	return q.items[q.head]
}

// pop 弹出队首
func (q *queue) pop() *QueuedMessage {
	if q.size == 0 {
		return nil
	}
	it := q.items[q.head]
	q.items[q.head] = nil
	q.head = (q.head + 1) % len(q.items)
	q.size--
	return it
}

// popIf 仅当队首是 it 时弹出
func (q *queue) popIf(it *QueuedMessage) bool {
	if q.peek() != it {
		return false
	}
	q.pop()
	return true
}

// drain 弹出全部
func (q *queue) drain() []*QueuedMessage {
	out := make([]*QueuedMessage, 0, q.size)
	for q.size > 0 {
		out = append(out, q.pop())
	}
	return out
}
