package source

func checkTerminal() error {
	master, slave, err := openPTY()
	if err != nil {
		return err
	}
	master.Close()
	slave.Close()
	return nil
}
