package model

import (
	"container/heap"

	"mmd-pose-renderer/internal/loaderr"
	"mmd-pose-renderer/internal/pmx"
)

// boneOrder returns PMX bone indices in evaluation order: every bone after
// its parent and its inherit parent, otherwise by (after-physics, layer,
// file index).
func boneOrder(bones []pmx.Bone) ([]int, error) {
	n := len(bones)
	indegree := make([]int, n)
	children := make([][]int, n)
	link := func(from, to int) {
		children[from] = append(children[from], to)
		indegree[to]++
	}
	for i, b := range bones {
		if b.Parent >= 0 {
			link(int(b.Parent), i)
		}
		if b.InheritParent >= 0 && b.Flags&(pmx.BoneInheritRotation|pmx.BoneInheritTranslation) != 0 &&
			b.InheritParent != b.Parent {
			link(int(b.InheritParent), i)
		}
	}

	q := &boneQueue{bones: bones}
	for i := range bones {
		if indegree[i] == 0 {
			q.items = append(q.items, i)
		}
	}
	heap.Init(q)

	order := make([]int, 0, n)
	for q.Len() > 0 {
		i := heap.Pop(q).(int)
		order = append(order, i)
		for _, c := range children[i] {
			indegree[c]--
			if indegree[c] == 0 {
				heap.Push(q, c)
			}
		}
	}
	if len(order) != n {
		return nil, loaderr.New("model", loaderr.KindInconsistent,
			"bone hierarchy has a cycle through %d bones", n-len(order))
	}
	return order, nil
}

type boneQueue struct {
	bones []pmx.Bone
	items []int
}

func (q *boneQueue) Len() int { return len(q.items) }

func (q *boneQueue) Less(i, j int) bool {
	a, b := q.items[i], q.items[j]
	pa := q.bones[a].Flags&pmx.BoneAfterPhysics != 0
	pb := q.bones[b].Flags&pmx.BoneAfterPhysics != 0
	if pa != pb {
		return !pa
	}
	if la, lb := q.bones[a].Layer, q.bones[b].Layer; la != lb {
		return la < lb
	}
	return a < b
}

func (q *boneQueue) Swap(i, j int) { q.items[i], q.items[j] = q.items[j], q.items[i] }

func (q *boneQueue) Push(x any) { q.items = append(q.items, x.(int)) }

func (q *boneQueue) Pop() any {
	n := len(q.items)
	x := q.items[n-1]
	q.items = q.items[:n-1]
	return x
}
