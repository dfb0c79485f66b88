package engine

// cell holds the entities stacked on one position. Goals are markers and
// may share a cell with the worker or a box.
type cell struct {
	worker *Entity
	wall   *Entity
	goal   *Entity
	box    *Entity
}

func (c *cell) empty() bool {
	return c.worker == nil && c.wall == nil && c.goal == nil && c.box == nil
}

// grid indexes entities by position so occupancy checks stay O(1)
type grid map[Position]*cell

func (g grid) at(pos Position) *cell {
	return g[pos]
}

func (g grid) slot(pos Position) *cell {
	c, ok := g[pos]
	if !ok {
		c = &cell{}
		g[pos] = c
	}
	return c
}

func (g grid) place(e *Entity) {
	c := g.slot(e.Position)
	switch e.Category {
	case Worker:
		c.worker = e
	case Wall:
		c.wall = e
	case Goal:
		c.goal = e
	case Box:
		c.box = e
	}
}

func (g grid) remove(e *Entity) {
	c := g.at(e.Position)
	if c == nil {
		return
	}
	switch e.Category {
	case Worker:
		if c.worker == e {
			c.worker = nil
		}
	case Wall:
		if c.wall == e {
			c.wall = nil
		}
	case Goal:
		if c.goal == e {
			c.goal = nil
		}
	case Box:
		if c.box == e {
			c.box = nil
		}
	}
	if c.empty() {
		delete(g, e.Position)
	}
}

// relocate moves a mobile entity and keeps the index consistent
func (g grid) relocate(e *Entity, to Position) {
	g.remove(e)
	e.Position = to
	g.place(e)
}

func (g grid) hasWall(pos Position) bool {
	c := g.at(pos)
	return c != nil && c.wall != nil
}

func (g grid) hasBox(pos Position) bool {
	c := g.at(pos)
	return c != nil && c.box != nil
}

func (g grid) hasGoal(pos Position) bool {
	c := g.at(pos)
	return c != nil && c.goal != nil
}

// occupants returns the entities at pos ordered worker, wall, goal, box
func (g grid) occupants(pos Position) []*Entity {
	c := g.at(pos)
	if c == nil {
		return nil
	}
	out := make([]*Entity, 0, 2)
	for _, e := range []*Entity{c.worker, c.wall, c.goal, c.box} {
		if e != nil {
			out = append(out, e)
		}
	}
	return out
}
